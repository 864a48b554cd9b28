package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm/clause"

	"recordstore/internal/database"
	"recordstore/internal/model"
)

// importBatchSize is how many parsed rows a worker accumulates before
// flushing them to the store.
const importBatchSize = 500

// ProgressInfo reports the state of one CSV import job.
type ProgressInfo struct {
	JobID        string    `json:"job_id"`
	FileName     string    `json:"file_name"`
	TotalRecords int       `json:"total_records"`
	Processed    int       `json:"processed"`
	Skipped      int       `json:"skipped"`
	Status       string    `json:"status"` // "processing", "completed", "error"
	Error        string    `json:"error,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time,omitempty"`
}

// ImportService loads records from CSV files (id,name,age,gender) into
// the store, tracking per-file progress for polling and streaming
// clients. Rows whose id already exists are skipped, not fatal.
type ImportService struct {
	engine *database.Engine

	progress   map[string]*ProgressInfo
	progressMu sync.RWMutex

	listeners  map[chan *ProgressInfo]bool
	listenerMu sync.RWMutex

	workerSlots chan struct{}
}

// NewImportService creates an import service over the engine.
func NewImportService(engine *database.Engine) *ImportService {
	maxWorkers := runtime.NumCPU() * 2

	return &ImportService{
		engine:      engine,
		progress:    make(map[string]*ProgressInfo),
		listeners:   make(map[chan *ProgressInfo]bool),
		workerSlots: make(chan struct{}, maxWorkers),
	}
}

// RegisterListener subscribes a channel to progress updates.
func (s *ImportService) RegisterListener(ch chan *ProgressInfo) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners[ch] = true
}

// UnregisterListener removes a previously registered channel.
func (s *ImportService) UnregisterListener(ch chan *ProgressInfo) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	delete(s.listeners, ch)
}

// broadcast sends a progress snapshot to every listener. Listeners get
// a copy because the live entry keeps changing under progressMu; slow
// listeners are skipped rather than blocked on.
func (s *ImportService) broadcast(progress *ProgressInfo) {
	snapshot := *progress

	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()

	for listener := range s.listeners {
		select {
		case listener <- &snapshot:
		default:
		}
	}
}

// FileProgress returns a copy of the progress for one file, or nil when
// the file is unknown.
func (s *ImportService) FileProgress(fileName string) *ProgressInfo {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()

	if progress, ok := s.progress[fileName]; ok {
		snapshot := *progress
		return &snapshot
	}
	return nil
}

// AllProgress returns copies of the progress for every known file.
func (s *ImportService) AllProgress() []*ProgressInfo {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()

	result := make([]*ProgressInfo, 0, len(s.progress))
	for _, progress := range s.progress {
		snapshot := *progress
		result = append(result, &snapshot)
	}
	return result
}

func (s *ImportService) addProcessed(fileName string, processed, skipped int) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	progress, ok := s.progress[fileName]
	if !ok {
		return
	}
	progress.Processed += processed
	progress.Skipped += skipped
	if progress.Processed > progress.TotalRecords {
		progress.Processed = progress.TotalRecords
	}
	s.broadcast(progress)
}

func (s *ImportService) fail(fileName, msg string) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	if progress, ok := s.progress[fileName]; ok {
		progress.Status = "error"
		progress.Error = msg
		progress.EndTime = time.Now()
		s.broadcast(progress)
	}
}

// ProcessCSV imports one CSV file and blocks until it is fully
// processed. The returned job id identifies the run in progress
// reports.
func (s *ImportService) ProcessCSV(filePath string) (string, error) {
	jobID := s.register(filePath)
	return jobID, s.run(jobID, filePath)
}

// StartCSV begins importing a CSV file in the background and returns
// the job id immediately. Failures surface through FileProgress rather
// than an error return.
func (s *ImportService) StartCSV(filePath string) string {
	jobID := s.register(filePath)
	go func() {
		if err := s.run(jobID, filePath); err != nil {
			log.Error().Str("job", jobID).Str("file", filePath).Err(err).Msg("import failed")
		}
	}()
	return jobID
}

// register creates the progress entry for a new import job.
func (s *ImportService) register(filePath string) string {
	fileName := filepath.Base(filePath)
	jobID := ksuid.New().String()

	s.progressMu.Lock()
	s.progress[fileName] = &ProgressInfo{
		JobID:     jobID,
		FileName:  fileName,
		Status:    "processing",
		StartTime: time.Now(),
	}
	s.progressMu.Unlock()
	return jobID
}

func (s *ImportService) run(jobID, filePath string) error {
	fileName := filepath.Base(filePath)
	start := time.Now()

	info, err := os.Stat(filePath)
	if err != nil {
		s.fail(fileName, "stat file: "+err.Error())
		return err
	}

	total, err := s.countRows(filePath)
	if err != nil {
		s.fail(fileName, "count rows: "+err.Error())
		return err
	}

	s.progressMu.Lock()
	s.progress[fileName].TotalRecords = total
	s.progressMu.Unlock()

	numWorkers := workersForSize(info.Size())
	log.Info().
		Str("job", jobID).
		Str("file", fileName).
		Int("rows", total).
		Int("workers", numWorkers).
		Msg("import started")

	file, err := os.Open(filePath)
	if err != nil {
		s.fail(fileName, "open file: "+err.Error())
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil && err != io.EOF {
		s.fail(fileName, "read header: "+err.Error())
		return err
	}

	rows := make(chan []string, numWorkers*100)
	var wg sync.WaitGroup
	seenIDs := sync.Map{}

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.worker(fileName, rows, &seenIDs, &wg)
	}

	go func() {
		defer close(rows)
		for {
			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				log.Warn().Str("file", fileName).Err(err).Msg("skipping unreadable CSV row")
				s.addProcessed(fileName, 1, 1)
				continue
			}
			rows <- row
		}
	}()

	wg.Wait()

	s.progressMu.Lock()
	if progress, ok := s.progress[fileName]; ok {
		progress.Status = "completed"
		progress.EndTime = time.Now()
		progress.Processed = progress.TotalRecords
		s.broadcast(progress)
	}
	s.progressMu.Unlock()

	log.Info().
		Str("job", jobID).
		Str("file", fileName).
		Dur("elapsed", time.Since(start)).
		Msg("import completed")
	return nil
}

// worker parses rows into records and flushes them in batches. Rows
// with unparseable ids or ages and ids already seen in this file are
// counted as skipped.
func (s *ImportService) worker(fileName string, rows chan []string, seenIDs *sync.Map, wg *sync.WaitGroup) {
	s.workerSlots <- struct{}{}
	defer func() {
		<-s.workerSlots
		wg.Done()
	}()

	var batch []*model.Record
	processed := 0
	skipped := 0

	flush := func() {
		if len(batch) > 0 {
			if err := s.saveBatch(batch); err != nil {
				log.Error().Str("file", fileName).Err(err).Msg("batch insert failed")
			}
			batch = nil
		}
		if processed > 0 || skipped > 0 {
			s.addProcessed(fileName, processed, skipped)
			processed = 0
			skipped = 0
		}
	}

	for row := range rows {
		rec, ok := parseRow(row)
		if !ok {
			skipped++
			processed++
			continue
		}
		if _, dup := seenIDs.LoadOrStore(rec.ID, true); dup {
			skipped++
			processed++
			continue
		}

		batch = append(batch, rec)
		processed++

		if len(batch) >= importBatchSize {
			flush()
		}
	}

	flush()
}

// parseRow converts one CSV row (id,name,age,gender) into a record.
func parseRow(row []string) (*model.Record, bool) {
	if len(row) < 4 {
		return nil, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return nil, false
	}
	age, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return nil, false
	}
	return &model.Record{
		ID:     id,
		Name:   strings.TrimSpace(row[1]),
		Age:    age,
		Gender: strings.TrimSpace(row[3]),
	}, true
}

// saveBatch inserts records in one statement, skipping ids that already
// exist in the store.
func (s *ImportService) saveBatch(batch []*model.Record) error {
	if len(batch) == 0 {
		return nil
	}
	err := s.engine.DB().
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(batch).Error
	if err != nil {
		return fmt.Errorf("insert batch of %d: %w", len(batch), err)
	}
	return nil
}

// countRows counts the data rows of a CSV file, excluding the header.
func (s *ImportService) countRows(filePath string) (int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		// Unparseable rows still occupy a line and will be skipped
		// during the import pass, so they count toward the total.
		count++
	}
	return count, nil
}

// workersForSize picks a worker count from the file size, capped by the
// available CPUs.
func workersForSize(fileSize int64) int {
	cpus := runtime.NumCPU()

	switch {
	case fileSize < 1_000_000: // < 1MB
		return min(2, cpus)
	case fileSize < 10_000_000: // < 10MB
		return min(4, cpus)
	case fileSize < 100_000_000: // < 100MB
		return min(8, cpus)
	case fileSize < 1_000_000_000: // < 1GB
		return min(16, cpus)
	}
	return cpus
}
