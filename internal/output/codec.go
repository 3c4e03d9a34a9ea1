package output

import (
	"github.com/yeren108/emt4j/internal/model"
)

//go:generate msgp -marshal=false -tests=false -unexported

// Frame kinds. Every frame is a two element array: kind, then body.
const (
	frameHeader  = "header"
	frameRecord  = "record"
	frameTrailer = "trailer"
)

// FormatVersion is bumped whenever the frame layout changes.
const FormatVersion = 1

// Header opens every stream.
type Header struct {
	Format int    `msg:"format"`
	RunID  string `msg:"run"`
	From   int    `msg:"from"`
	To     int    `msg:"to"`
}

type trailer struct {
	Complete bool `msg:"complete"`
	Records  int  `msg:"records"`
}

type wireInfo struct {
	Identifier   string   `msg:"id"`
	IsDependency bool     `msg:"dep"`
	Extras       []string `msg:"extras"`
}

type wireFinding struct {
	Category string `msg:"category"`
	Level    string `msg:"level"`
	Target   string `msg:"target"`
	Message  string `msg:"message"`
	Lines    []int  `msg:"lines"`
}

// wireRecord is the encoded form of model.Record.
type wireRecord struct {
	Source    string        `msg:"source"`
	Kind      int           `msg:"kind"`
	Info      *wireInfo     `msg:"info"`
	ClassName string        `msg:"class"`
	Unit      string        `msg:"unit"`
	Findings  []wireFinding `msg:"findings"`
	Err       string        `msg:"err"`
}

func toWire(rec model.Record) *wireRecord {
	w := &wireRecord{
		Source:    rec.Source,
		Kind:      int(rec.Kind),
		ClassName: rec.ClassName,
		Unit:      rec.Unit,
		Err:       rec.Err,
	}
	if rec.Info != nil {
		w.Info = &wireInfo{
			Identifier:   rec.Info.Identifier,
			IsDependency: rec.Info.IsDependency,
			Extras:       rec.Info.Extras,
		}
	}
	if len(rec.Findings) > 0 {
		w.Findings = make([]wireFinding, len(rec.Findings))
		for i, f := range rec.Findings {
			w.Findings[i] = wireFinding(f)
		}
	}
	return w
}

func (w *wireRecord) record() model.Record {
	rec := model.Record{
		Source:    w.Source,
		Kind:      model.SourceKind(w.Kind),
		ClassName: w.ClassName,
		Unit:      w.Unit,
		Err:       w.Err,
	}
	if w.Info != nil {
		rec.Info = &model.SourceInformation{
			Identifier:   w.Info.Identifier,
			IsDependency: w.Info.IsDependency,
			Extras:       w.Info.Extras,
		}
	}
	if len(w.Findings) > 0 {
		rec.Findings = make([]model.Finding, len(w.Findings))
		for i, f := range w.Findings {
			rec.Findings[i] = model.Finding(f)
		}
	}
	return rec
}
