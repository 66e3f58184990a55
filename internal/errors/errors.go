package errors

import "errors"

var (
	ErrDestinationCollision = errors.New("destination path collision")
	ErrFrameDirExists       = errors.New("frame directory already exists")
	ErrNoURLs               = errors.New("no URLs to download")
)
