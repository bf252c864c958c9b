package main

import (
	"os"
	"syscall"
	"time"
)

func statDocument(path string) (docInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return docInfo{}, err
	}
	info := docInfo{size: fi.Size(), modified: fi.ModTime(), created: fi.ModTime()}
	if d, ok := fi.Sys().(*syscall.Win32FileAttributeData); ok {
		info.created = time.Unix(0, d.CreationTime.Nanoseconds())
	}
	return info, nil
}
