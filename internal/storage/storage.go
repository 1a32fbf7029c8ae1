// Package storage persists per-guild player settings. Queues are not
// persisted; only the preferred volume and a short history of played
// tracks survive restarts.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keshon/datastore"
)

const tracksHistoryLimit int = 12

type Storage struct {
	ds *datastore.DataStore
}

type TrackHistoryRecord struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	RequestedBy string    `json:"requested_by"`
	PlayedAt    time.Time `json:"played_at"`
}

type Record struct {
	Volume       int                  `json:"volume"`
	TrackHistory []TrackHistoryRecord `json:"track_history"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateGuildRecord returns the guild's record, creating an empty
// one on first access.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		newRecord := &Record{}
		s.ds.Add(guildID, newRecord)
		return newRecord, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}
	return &record, nil
}

// Volume returns the guild's preferred volume, if one was ever saved.
func (s *Storage) Volume(guildID string) (int, bool) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil || record.Volume == 0 {
		return 0, false
	}
	return record.Volume, true
}

func (s *Storage) SetVolume(guildID string, volume int) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	record.Volume = volume
	s.ds.Add(guildID, record)
	return nil
}

// AddTrackToHistory prepends a played track, keeping the newest
// tracksHistoryLimit entries.
func (s *Storage) AddTrackToHistory(guildID string, rec TrackHistoryRecord) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.TrackHistory = append([]TrackHistoryRecord{rec}, record.TrackHistory...)
	if len(record.TrackHistory) > tracksHistoryLimit {
		record.TrackHistory = record.TrackHistory[:tracksHistoryLimit]
	}
	s.ds.Add(guildID, record)
	return nil
}

func (s *Storage) TrackHistory(guildID string) ([]TrackHistoryRecord, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.TrackHistory, nil
}
