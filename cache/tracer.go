package cache

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/hooking"
	"github.com/sirupsen/logrus"
)

// AccessTableName is the table that the DB tracer writes into.
const AccessTableName = "cache_accesses"

// accessEntry represents one cache access in the database. Addresses and tags
// are stored as hex strings since SQLite integers are signed.
type accessEntry struct {
	ID         string
	Cache      string
	Seq        uint64
	Address    string
	Tag        string
	SetID      int
	WayID      int
	Outcome    string
	Evicted    bool
	EvictedTag string
}

// A dbTracer is a hook that records every access of a cache into a database
// using the data recorder.
type dbTracer struct {
	dataRecorder datarecording.DataRecorder
	seq          uint64
}

// NewDBTracer creates a hook that records accesses into the data recorder.
func NewDBTracer(dataRecorder datarecording.DataRecorder) hooking.Hook {
	t := &dbTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(AccessTableName, accessEntry{})

	return t
}

// Func records the access.
func (t *dbTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosAccess {
		return
	}

	detail, ok := ctx.Detail.(AccessDetail)
	if !ok {
		return
	}

	t.seq++

	entry := accessEntry{
		ID:      xid.New().String(),
		Cache:   domainName(ctx.Domain),
		Seq:     t.seq,
		Address: fmt.Sprintf("0x%x", detail.Address),
		Tag:     fmt.Sprintf("0x%x", detail.Tag),
		SetID:   detail.SetID,
		WayID:   detail.WayID,
		Outcome: detail.Outcome.String(),
		Evicted: detail.Outcome.IsEviction(),
	}

	if entry.Evicted {
		entry.EvictedTag = fmt.Sprintf("0x%x", detail.EvictedTag)
	}

	t.dataRecorder.InsertData(AccessTableName, entry)
}

// A logTracer writes every access to a logger at debug level.
type logTracer struct {
	logger logrus.FieldLogger
}

// NewLogTracer creates a hook that logs accesses.
func NewLogTracer(logger logrus.FieldLogger) hooking.Hook {
	return &logTracer{logger: logger}
}

// Func logs the access.
func (t *logTracer) Func(ctx hooking.HookCtx) {
	detail, ok := ctx.Detail.(AccessDetail)
	if !ok || ctx.Pos != HookPosAccess {
		return
	}

	fields := logrus.Fields{
		"cache":   domainName(ctx.Domain),
		"address": fmt.Sprintf("0x%x", detail.Address),
		"tag":     fmt.Sprintf("0x%x", detail.Tag),
		"set":     detail.SetID,
		"way":     detail.WayID,
	}

	if detail.Outcome.IsEviction() {
		fields["evicted_tag"] = fmt.Sprintf("0x%x", detail.EvictedTag)
	}

	t.logger.WithFields(fields).Debug(detail.Outcome.String())
}

func domainName(d hooking.Hookable) string {
	if c, ok := d.(*Cache); ok {
		return c.Name
	}

	return ""
}
