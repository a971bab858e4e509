package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

// FileStore keeps preferences in preferences.yaml next to the config file.
// Every Set is written through.
type FileStore struct {
	mu sync.Mutex
	v  *viper.Viper
}

var _ PreferenceStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("preferences")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read preferences: %w", err)
		}
	}

	return &FileStore{v: v}, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.v.IsSet(key) {
		return "", false
	}
	return s.v.GetString(key), true
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if err := s.v.WriteConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return s.v.SafeWriteConfig()
		}
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
