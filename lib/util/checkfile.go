package util

import (
	"os"
	"time"
)

// Check if a file exists and is readable etc
// returns false if not
func CheckFileExists(fpath string) bool {
	_, e := os.Stat(fpath)
	return e == nil
}

// CheckFileAge reports whether fpath's modification time is more than
// minutes old. Returns false if the file doesn't exist.
func CheckFileAge(fpath string, minutes int) bool {
	info, err := os.Stat(fpath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > time.Duration(minutes)*time.Minute
}
