// Package geo captures the device's position for the create flow. A
// capture is a single read, never a continuous watch, and a refused
// permission is terminal for that flow.
package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"tourblog/internal/domain"
)

// CommandProvider reads the current position by running an external
// location helper (termux-location and friends) that prints a JSON object
// with latitude and longitude fields.
type CommandProvider struct {
	// Command is the helper invoked for each capture.
	Command string
}

// Current runs the helper once and packages its output as a Geotag. A
// helper that exits reporting a denied permission maps to
// ErrPermissionDenied; the caller must not proceed with a create.
func (p *CommandProvider) Current(ctx context.Context) (domain.Geotag, error) {
	if p.Command == "" {
		return domain.Geotag{}, fmt.Errorf("no location command configured")
	}

	cmd := exec.CommandContext(ctx, p.Command)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if strings.Contains(strings.ToLower(output.String()), "denied") {
			return domain.Geotag{}, fmt.Errorf("location: %w", domain.ErrPermissionDenied)
		}
		return domain.Geotag{}, fmt.Errorf("read location: %w", err)
	}

	var reading struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(output.Bytes(), &reading); err != nil {
		return domain.Geotag{}, fmt.Errorf("parse location output: %w", err)
	}

	return domain.Geotag{Longitude: reading.Longitude, Latitude: reading.Latitude}, nil
}

// FixedProvider always reports the same position. Used when coordinates
// are supplied explicitly instead of read from the device.
type FixedProvider struct {
	Position domain.Geotag
}

func (p *FixedProvider) Current(ctx context.Context) (domain.Geotag, error) {
	return p.Position, nil
}
