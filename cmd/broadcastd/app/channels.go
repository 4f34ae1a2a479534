package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/onairstack/broadcastcore/pkg/model"
)

// LoadChannels reads the channel set a broadcastd process serves from a
// JSON file: a flat array of model.Channel. An empty path returns no
// channels, which is valid for running the HTTP surface standalone.
func LoadChannels(path string) ([]model.Channel, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}
	var channels []model.Channel
	if err := json.Unmarshal(raw, &channels); err != nil {
		return nil, fmt.Errorf("parse channels file: %w", err)
	}
	return channels, nil
}
