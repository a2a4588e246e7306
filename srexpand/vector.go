package srexpand

import (
	"fmt"
	"strconv"

	"github.com/spider2/runtime/brv"
	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/pisdf"
)

// sliceEntry is one token-producing or token-consuming unit in a source
// or sink vector: srVertex's port carries rate tokens (spec.md §4.2
// step 2/3).
type sliceEntry struct {
	rate     int64
	srVertex string
	port     int
}

// buildSourceVector returns one entry per firing of e's source vertex,
// prefixed with a delay-setter entry when e carries a delay (spec.md
// §4.2 step 2).
func buildSourceVector(j *job, c *clones, e *pisdf.Edge, rep brv.RepetitionVector, sourceKey string) ([]sliceEntry, error) {
	_, p, err := e.FromRate.Eval(j.env)
	if err != nil {
		return nil, err
	}

	var vec []sliceEntry
	if e.Delay != nil {
		entry, err := delaySourceEntry(j, c, e)
		if err != nil {
			return nil, err
		}
		vec = append(vec, entry)
	}

	srIDs := c.get(j, sourceKey)
	for i := 0; i < int(rep[e.From]); i++ {
		if i >= len(srIDs) {
			return nil, fmt.Errorf("srexpand: missing SR clone %d of vertex %q", i, sourceKey)
		}
		vec = append(vec, sliceEntry{rate: p, srVertex: srIDs[i], port: e.FromPort})
	}
	return vec, nil
}

// buildSinkVector returns one entry per firing of e's sink vertex,
// suffixed with a delay-getter entry when e carries a delay (spec.md
// §4.2 step 3).
func buildSinkVector(j *job, c *clones, e *pisdf.Edge, rep brv.RepetitionVector, sinkKey string) ([]sliceEntry, error) {
	_, cRate, err := e.ToRate.Eval(j.env)
	if err != nil {
		return nil, err
	}

	var vec []sliceEntry
	srIDs := c.get(j, sinkKey)
	for i := 0; i < int(rep[e.To]); i++ {
		if i >= len(srIDs) {
			return nil, fmt.Errorf("srexpand: missing SR clone %d of vertex %q", i, sinkKey)
		}
		vec = append(vec, sliceEntry{rate: cRate, srVertex: srIDs[i], port: e.ToPort})
	}

	if e.Delay != nil {
		if e.From == e.To {
			size, err := evalDelaySize(j, e)
			if err != nil {
				return nil, err
			}
			if size < cRate {
				return nil, fmt.Errorf("%w: edge %q needs >= %d, has %d", ErrInsufficientDelay, e.ID, cRate, size)
			}
		}
		entry, err := delaySinkEntry(j, c, e)
		if err != nil {
			return nil, err
		}
		vec = append(vec, entry)
	}
	return vec, nil
}

func evalDelaySize(j *job, e *pisdf.Edge) (int64, error) {
	_, size, err := e.Delay.Size.Eval(j.env)
	return size, err
}

// delaySourceEntry resolves the producer of a delay's initial tokens: the
// explicit setter actor's clone if one was declared, else a synthesized
// INIT vertex reading from persistent/zero-initialized storage.
func delaySourceEntry(j *job, c *clones, e *pisdf.Edge) (sliceEntry, error) {
	size, err := evalDelaySize(j, e)
	if err != nil {
		return sliceEntry{}, err
	}
	if e.Delay.HasSetter() {
		srIDs := c.get(j, e.Delay.SetterVertex)
		if len(srIDs) == 0 {
			return sliceEntry{}, fmt.Errorf("srexpand: missing SR clone of setter %q", e.Delay.SetterVertex)
		}
		return sliceEntry{rate: size, srVertex: srIDs[0], port: e.Delay.SetterPort}, nil
	}
	initID := j.srName(e.ID+".init", 0)
	v := pisdf.NewVertex(initID, initID, pisdf.Init, nil, []expr.Expression{constRate(size)})
	v.Kernel = delayKernel{id: initID, key: j.path + "." + e.ID + ".delay", persistent: e.Delay.Persistent}
	if err := j.sr.AddVertex(v); err != nil {
		return sliceEntry{}, err
	}
	return sliceEntry{rate: size, srVertex: initID, port: 0}, nil
}

// delaySinkEntry resolves the consumer of a delay's final tokens: the
// explicit getter actor's clone if one was declared, else a synthesized
// END vertex writing to persistent/discarded storage.
func delaySinkEntry(j *job, c *clones, e *pisdf.Edge) (sliceEntry, error) {
	size, err := evalDelaySize(j, e)
	if err != nil {
		return sliceEntry{}, err
	}
	if e.Delay.HasGetter() {
		srIDs := c.get(j, e.Delay.GetterVertex)
		if len(srIDs) == 0 {
			return sliceEntry{}, fmt.Errorf("srexpand: missing SR clone of getter %q", e.Delay.GetterVertex)
		}
		return sliceEntry{rate: size, srVertex: srIDs[0], port: e.Delay.GetterPort}, nil
	}
	endID := j.srName(e.ID+".end", 0)
	v := pisdf.NewVertex(endID, endID, pisdf.End, []expr.Expression{constRate(size)}, nil)
	v.Kernel = delayKernel{id: endID, key: j.path + "." + e.ID + ".delay", persistent: e.Delay.Persistent}
	if err := j.sr.AddVertex(v); err != nil {
		return sliceEntry{}, err
	}
	return sliceEntry{rate: size, srVertex: endID, port: 0}, nil
}

func constRate(n int64) expr.Expression {
	return expr.MustCompileConst(strconv.FormatInt(n, 10))
}

// delayKernel is the Kernel attached to synthesized INIT/END vertices. Its
// key is stable across iterations of the same graph location (derived from
// the job's naming prefix and the originating edge id, not the firing-
// scoped vertex id), letting fifo correlate an INIT and its paired END back
// to the same persistent buffer across repeated Expand calls.
type delayKernel struct {
	id         string
	key        string
	persistent bool
}

func (k delayKernel) ID() string         { return k.id }
func (k delayKernel) InParams() int      { return 0 }
func (k delayKernel) OutParams() int     { return 0 }
func (k delayKernel) PersistKey() string { return k.key }
func (k delayKernel) Persistent() bool   { return k.persistent }
