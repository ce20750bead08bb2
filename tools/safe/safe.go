package safe

import "chathub/logger"

// Go starts a goroutine that recovers from panic, so a bad handler
// doesn't take the whole process down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
