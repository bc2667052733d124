package meta

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"mediadex/internal/util"
)

// FFprobeInfo represents the output from ffprobe
type FFprobeInfo struct {
	Format *FFprobeFormat `json:"format"`
}

// FFprobeFormat represents container format metadata
type FFprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// RunFFprobe executes ffprobe and parses the JSON output
func RunFFprobe(path string) (*FFprobeInfo, error) {
	// Check if ffprobe is available
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, util.ErrNotFound
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info FFprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return &info, nil
}

// ProbeDurationMs returns the file's duration in milliseconds
func ProbeDurationMs(path string) (int64, error) {
	info, err := RunFFprobe(path)
	if err != nil {
		return 0, err
	}
	return durationMsFromInfo(info)
}

func durationMsFromInfo(info *FFprobeInfo) (int64, error) {
	if info.Format == nil || info.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}

	seconds, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", info.Format.Duration, err)
	}

	return int64(seconds * float64(time.Second/time.Millisecond)), nil
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}
