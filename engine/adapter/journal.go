package adapter

import "github.com/rs/zerolog"

// ZerologJournal emits JournalEvents as structured zerolog records, one
// field per map entry, the way the rest of this codebase logs domain
// events.
type ZerologJournal struct {
	log zerolog.Logger
}

func NewZerologJournal(log zerolog.Logger) *ZerologJournal {
	return &ZerologJournal{log: log}
}

func (j *ZerologJournal) Record(ev JournalEvent) {
	e := j.log.Info()
	if ev.Kind == EventError {
		e = j.log.Error()
	}
	e = e.Str("kind", string(ev.Kind)).Str("symbol", ev.Symbol).Int64("ts_ms", ev.TsMs)
	for k, v := range ev.Fields {
		e = e.Interface(k, v)
	}
	e.Msg(ev.Message)
}

// NoopJournal discards every event; used in tests and dry-run compiles.
type NoopJournal struct{}

func (NoopJournal) Record(JournalEvent) {}
