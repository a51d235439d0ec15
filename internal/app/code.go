package app

import "context"

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	maxCodeAttempts = 10
)

func (s *GameService) randomCode() string {
	buf := make([]byte, codeLength)
	s.mu.Lock()
	for i := range buf {
		buf[i] = codeAlphabet[s.rnd.Intn(len(codeAlphabet))]
	}
	s.mu.Unlock()
	return string(buf)
}

// uniqueCode retries generation while the code collides with an existing
// session. After maxCodeAttempts collisions the last code is used anyway;
// uniqueness is best effort, the store's unique index is the final word.
func (s *GameService) uniqueCode(ctx context.Context) (string, error) {
	code := s.randomCode()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		taken, err := s.store.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		code = s.randomCode()
	}
	return code, nil
}

func (s *GameService) randomAvatarColor(colors []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return colors[s.rnd.Intn(len(colors))]
}

func (s *GameService) shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}
