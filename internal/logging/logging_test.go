package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Printf("hello %d", 1)
	l.Println("hello")
	l.Debugf("debug")
	l.Warn(nil)
	l.Error(nil)
	if sub := l.Sublogger("x"); sub != nil {
		t.Fatal("expected nil sublogger from nil logger")
	}
}

func TestSubloggerPrefixesCompose(t *testing.T) {
	var buf bytes.Buffer
	root := NewRoot(&buf, zerolog.InfoLevel)
	sub := root.Sublogger("executor").Sublogger("backup")
	if sub.prefix != "executor.backup" {
		t.Errorf("unexpected prefix: %q", sub.prefix)
	}
}

func TestPrintfWritesOutput(t *testing.T) {
	var buf bytes.Buffer
	root := NewRoot(&buf, zerolog.InfoLevel)
	root.Printf("hello %s", "world")
	if buf.Len() == 0 {
		t.Error("expected output to be written")
	}
}
