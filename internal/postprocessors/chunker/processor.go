// Package chunker provides a fixed-size text chunking processor.
package chunker

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits text into fixed-size windows that overlap.
// Lengths are counted in characters (runes), never bytes, so multi-byte
// text is never cut inside a character.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Stride returns how far each window advances.
func (p *Processor) Stride() int {
	return p.chunkSize - p.overlap
}

// Count returns the number of chunks Split produces for a text of the
// given length in characters.
func (p *Processor) Count(length int) int {
	switch {
	case length == 0:
		return 0
	case length <= p.chunkSize:
		return 1
	}
	stride := p.Stride()
	return (length - p.overlap + stride - 1) / stride
}

// Split cuts text into windows of at most chunkSize characters, each
// starting Stride characters after the previous one. Splitting stops at
// the first window that reaches the end of the text, so consecutive
// chunks share exactly overlap characters and the last chunk is never
// contained in its predecessor.
func (p *Processor) Split(text string) []string {
	if text == "" {
		// Empty content produces no chunks
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	if total <= p.chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, p.Count(total))
	for start := 0; ; start += p.Stride() {
		end := start + p.chunkSize
		if end > total {
			end = total
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == total {
			break
		}
	}

	return chunks
}
