package recognize

import (
	"fmt"
	"log"
	"sort"
)

// Service holds the configured recognizers by name.
type Service struct {
	engines map[string]Recognizer
	def     string
}

// NewService registers whisper.cpp when whisperURL is set and OpenAI when an
// API key is set. The first registered engine is the default.
func NewService(whisperURL, openAIKey string) *Service {
	s := &Service{engines: make(map[string]Recognizer)}

	if whisperURL != "" {
		s.Register(NewWhisperCppClient(whisperURL))
		log.Printf("[recognize] registered whisper.cpp engine at %s", whisperURL)
	}
	if openAIKey != "" {
		s.Register(NewOpenAIClient(openAIKey))
		log.Printf("[recognize] registered OpenAI engine")
	}
	return s
}

func (s *Service) Register(r Recognizer) {
	if s.def == "" {
		s.def = r.Name()
	}
	s.engines[r.Name()] = r
}

// Get returns the named engine, or the default when name is empty.
func (s *Service) Get(name string) (Recognizer, error) {
	if name == "" {
		name = s.def
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no recognizer configured", ErrServiceUnavailable)
	}
	r, ok := s.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown recognizer: %s (available: %v)", name, s.Names())
	}
	return r, nil
}

func (s *Service) Default() string { return s.def }

func (s *Service) Names() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
