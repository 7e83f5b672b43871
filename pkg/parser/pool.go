package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool is a channel of parsers for one dialect, grown lazily up to
// maxSize. acquire blocks once every parser is checked out.
type parserPool struct {
	parsers chan *ts.Parser
	grammar unsafe.Pointer
	dialect Dialect
	maxSize int

	mutex   sync.Mutex
	created int

	logger *slog.Logger
}

func newParserPool(dialect Dialect, grammar unsafe.Pointer, maxSize int, logger *slog.Logger) *parserPool {
	return &parserPool{
		parsers: make(chan *ts.Parser, maxSize),
		grammar: grammar,
		dialect: dialect,
		maxSize: maxSize,
		logger:  logger,
	}
}

func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.parsers:
		return parser, nil
	default:
		return p.grow()
	}
}

// grow creates a parser while under maxSize, otherwise waits for a release.
func (p *parserPool) grow() (*ts.Parser, error) {
	p.mutex.Lock()
	if p.created >= p.maxSize {
		p.mutex.Unlock()
		return <-p.parsers, nil
	}
	defer p.mutex.Unlock()

	parser := ts.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create parser")
	}
	if err := parser.SetLanguage(ts.NewLanguage(p.grammar)); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set %s grammar: %w", p.dialect, err)
	}
	p.created++
	p.logger.Debug("created parser", "dialect", p.dialect.String(), "pool_size", p.created)
	return parser, nil
}

func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.parsers <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "dialect", p.dialect.String())
	}
}

func (p *parserPool) close() {
	close(p.parsers)
	for parser := range p.parsers {
		parser.Close()
	}
}

func (p *parserPool) createdCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.created
}
