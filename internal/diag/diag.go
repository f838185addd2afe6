package diag

// Kind identifies a diagnostic condition reported by the sampler core.
// None of these are fatal; they describe entries that were skipped or
// events that were dropped.
type Kind int

const (
	// FileNotFound means a note-map entry pointed at a missing file.
	FileNotFound Kind = iota
	// DecodeError means a sample file existed but could not be decoded.
	DecodeError
	// MalformedBuffer means a decoded buffer had zero frames or
	// inconsistent channel data and was discarded.
	MalformedBuffer
	// VoicePoolExhausted means a trigger arrived with no free voice and
	// was dropped.
	VoicePoolExhausted
	// NoteNotFound means a trigger arrived for a note the library does
	// not cover. Expected during normal play; reported at low severity.
	NoteNotFound
	// PlaybackError means the audio engine refused to start a voice; the
	// trigger was dropped.
	PlaybackError
	// LibraryRebuilt is informational: a new note library was published.
	LibraryRebuilt
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "file not found"
	case DecodeError:
		return "decode error"
	case MalformedBuffer:
		return "malformed buffer"
	case VoicePoolExhausted:
		return "voice pool exhausted"
	case NoteNotFound:
		return "note not found"
	case PlaybackError:
		return "playback error"
	case LibraryRebuilt:
		return "library rebuilt"
	default:
		return "unknown"
	}
}

// Event is one diagnostic occurrence. Only the fields relevant to the
// Kind are set.
type Event struct {
	Kind Kind
	Note int
	Path string
	Size int // notes in the library, for LibraryRebuilt
	Err  error
}

// Reporter receives diagnostic events. Implementations must be safe for
// concurrent use; Report is called from both the build path and the
// dispatch loop.
type Reporter interface {
	Report(Event)
}

type nopReporter struct{}

func (nopReporter) Report(Event) {}

// Nop returns a Reporter that discards everything.
func Nop() Reporter { return nopReporter{} }
