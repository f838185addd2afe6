package diag

import "go.uber.org/zap"

// ZapReporter logs diagnostic events through a zap logger, mapping each
// kind to a severity: skipped entries and dropped triggers are warnings,
// lookup misses are debug noise, rebuilds are info.
type ZapReporter struct {
	log *zap.Logger
}

func NewZapReporter(log *zap.Logger) *ZapReporter {
	return &ZapReporter{log: log}
}

func (z *ZapReporter) Report(ev Event) {
	switch ev.Kind {
	case FileNotFound:
		z.log.Warn("sample file not found",
			zap.Int("note", ev.Note), zap.String("path", ev.Path))
	case DecodeError:
		z.log.Warn("sample decode failed",
			zap.Int("note", ev.Note), zap.String("path", ev.Path), zap.Error(ev.Err))
	case MalformedBuffer:
		z.log.Warn("malformed sample buffer",
			zap.Int("note", ev.Note), zap.String("path", ev.Path))
	case VoicePoolExhausted:
		z.log.Warn("voice pool exhausted, trigger dropped",
			zap.Int("note", ev.Note))
	case NoteNotFound:
		z.log.Debug("note not in library",
			zap.Int("note", ev.Note))
	case PlaybackError:
		z.log.Warn("audio engine refused trigger",
			zap.Int("note", ev.Note), zap.Error(ev.Err))
	case LibraryRebuilt:
		z.log.Info("note library rebuilt",
			zap.Int("notes", ev.Size))
	default:
		z.log.Warn("diagnostic", zap.Stringer("kind", ev.Kind), zap.Error(ev.Err))
	}
}
