package lexer

const (
	DefaultMaxDepth     = 1024
	DefaultMaxIdleSteps = 1000
)

// Config holds session limits. Zero fields fall back to defaults.
type Config struct {
	// MaxDepth is the maximum number of contexts on the stack, main included.
	MaxDepth int

	// MaxIdleSteps is the maximum number of consecutive steps that change the stack without consuming text.
	MaxIdleSteps int
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:     DefaultMaxDepth,
		MaxIdleSteps: DefaultMaxIdleSteps,
	}
}

func (c Config) normalize() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxIdleSteps <= 0 {
		c.MaxIdleSteps = DefaultMaxIdleSteps
	}
	return c
}
