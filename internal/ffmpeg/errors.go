package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrPlayerNotFound indicates the ffplay binary could not be located.
var ErrPlayerNotFound = errors.New("ffplay not found")
