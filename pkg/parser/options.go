package parser

// DefaultMaxLineSize is the longest line the readers accept.
const DefaultMaxLineSize = 1024 * 1024

// Option configures parsing.
type Option func(*options)

type options struct {
	trim        TrimMode
	emptyLines  EmptyLinePolicy
	formats     []*Format
	maxLineSize int
}

// WithTrimMode sets the line normalization trim discipline.
func WithTrimMode(m TrimMode) Option {
	return func(o *options) {
		if m != "" {
			o.trim = m
		}
	}
}

// WithEmptyLinePolicy sets how empty continuation lines are joined.
func WithEmptyLinePolicy(p EmptyLinePolicy) Option {
	return func(o *options) {
		if p != "" {
			o.emptyLines = p
		}
	}
}

// WithFormats replaces the header formats tried, in priority order.
func WithFormats(formats ...*Format) Option {
	return func(o *options) {
		o.formats = formats
	}
}

// WithMaxLineSize sets the maximum accepted line length in bytes.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		trim:        TrimLeading,
		emptyLines:  EmptyLineSpace,
		maxLineSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) matcher() *Matcher {
	return NewMatcher(o.formats...)
}
