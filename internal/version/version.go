package version

import (
	"fmt"
	"strconv"
	"time"
)

var (
	commitVersion string = "v0.1.0"
	commitDate    string = "1700000000" // epoch seconds, filled in at build time
)

// GetVersion returns a human-readable version string.
func GetVersion() string {
	seconds, _ := strconv.Atoi(commitDate)
	msg := commitVersion
	if commitDate != "" {
		t := time.Unix(int64(seconds), 0).UTC()
		msg += fmt.Sprintf(", date: %s", t.Format("2006-01-02"))
	}
	return msg
}

// PrintVersion prints the version to stdout.
func PrintVersion() {
	fmt.Printf("%s\n", GetVersion())
}
