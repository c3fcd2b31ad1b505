// Package dimacs loads DIMACS CNF problem instances into a sat.Driver,
// transparently decompressing gzip-wrapped input and supporting "-" for
// stdin.
package dimacs

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	rhdimacs "github.com/rhartert/dimacs"

	"github.com/narrowgate/cdclsat/internal/sat"
)

// gzipMagic is the two-byte signature identifying a gzip stream (RFC 1952).
var gzipMagic = [2]byte{0x1f, 0x8b}

// closeBoth lets a decorated reader (e.g. a gzip.Reader wrapping a
// bufio.Reader) close the original underlying file or stdin handle.
type closeBoth struct {
	io.Reader
	closer io.Closer
}

func (c *closeBoth) Close() error { return c.closer.Close() }

// Open returns a reader for filename, transparently decompressing the
// stream if it begins with the gzip magic number. filename == "-" reads
// from stdin instead of opening a file.
func Open(filename string) (io.ReadCloser, error) {
	var base io.ReadCloser
	if filename == "-" {
		base = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		base = f
	}

	br := bufio.NewReader(base)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		base.Close()
		return nil, err
	}
	if len(magic) == 2 && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			base.Close()
			return nil, err
		}
		return &closeBoth{Reader: gz, closer: base}, nil
	}
	return &closeBoth{Reader: br, closer: base}, nil
}

// builder adapts a sat.Driver to the rhdimacs.Builder interface expected by
// ReadBuilder.
type builder struct {
	driver     *sat.Driver
	numVars    int
	numClauses int
	scratch    []sat.Lit
}

func (b *builder) Problem(problem string, numVars, numClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("unsupported problem type %q (only cnf is supported)", problem)
	}
	b.numVars = numVars
	b.numClauses = numClauses
	for i := 0; i < numVars; i++ {
		b.driver.AddVariable()
	}
	return nil
}

func (b *builder) Clause(tmp []int) error {
	b.scratch = b.scratch[:0]
	for _, l := range tmp {
		id := l
		if id < 0 {
			id = -id
		}
		for id > b.driver.NumVariables() {
			b.driver.AddVariable()
		}
		switch {
		case l < 0:
			b.scratch = append(b.scratch, sat.NegLit(sat.Var(-l-1)))
		case l > 0:
			b.scratch = append(b.scratch, sat.PosLit(sat.Var(l-1)))
		}
	}
	b.driver.AddClause(append([]sat.Lit(nil), b.scratch...))
	return nil
}

func (b *builder) Comment(string) error { return nil }

// Load parses the DIMACS CNF instance at filename ("-" for stdin, optionally
// gzip-wrapped) and instantiates its variables and clauses into driver,
// returning the counts declared by the problem line.
func Load(filename string, driver *sat.Driver) (numVars, numClauses int, err error) {
	r, err := Open(filename)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %q: %w", filename, err)
	}
	defer r.Close()

	b := &builder{driver: driver}
	if err := rhdimacs.ReadBuilder(r, b); err != nil {
		return 0, 0, fmt.Errorf("parsing %q: %w", filename, err)
	}
	return b.numVars, b.numClauses, nil
}
