//go:build !unix

package playback

import "os"

func signalPause(*os.Process) error  { return ErrUnsupported }
func signalResume(*os.Process) error { return ErrUnsupported }
