package main

import (
	"syscall"
	"time"
)

func statDocument(path string) (docInfo, error) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return docInfo{}, err
	}
	return docInfo{
		size:     st.Size,
		modified: time.Unix(st.Mtimespec.Sec, st.Mtimespec.Nsec),
		created:  time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec),
	}, nil
}
