package srexpand

import (
	"fmt"

	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/pisdf"
)

// piece is one token range shared between one source entry and one sink
// entry, produced by the lockstep walk of spec.md §4.2 step 4.
type piece struct {
	srcIdx, sinkIdx int
	size            int64
}

// walkVectors merges source and sink vectors into pieces: maximal token
// ranges attributable to exactly one (source entry, sink entry) pair.
// Total tokens on both sides must already be equal (guaranteed by the BRV
// invariant once source/sink vectors are built correctly).
func walkVectors(source, sink []sliceEntry) []piece {
	var pieces []piece
	si, ki := 0, 0
	sOff, kOff := int64(0), int64(0)
	for si < len(source) && ki < len(sink) {
		sRem := source[si].rate - sOff
		kRem := sink[ki].rate - kOff
		size := sRem
		if kRem < size {
			size = kRem
		}
		if size > 0 {
			pieces = append(pieces, piece{srcIdx: si, sinkIdx: ki, size: size})
		}
		sOff += size
		kOff += size
		if sOff == source[si].rate {
			si++
			sOff = 0
		}
		if kOff == sink[ki].rate {
			ki++
			kOff = 0
		}
	}
	return pieces
}

// wirePieces synthesizes FORK vertices for source entries split across
// multiple pieces and JOIN vertices for sink entries fed by multiple
// pieces, then adds the resulting direct SR edges (spec.md §4.2 step 4
// rules). idPrefix scopes synthesized vertex/edge ids to the edge being
// expanded.
func wirePieces(sr *pisdf.Graph, idPrefix string, source, sink []sliceEntry, pieces []piece) error {
	srcPieceCount := make(map[int]int)
	sinkPieceCount := make(map[int]int)
	for _, pc := range pieces {
		srcPieceCount[pc.srcIdx]++
		sinkPieceCount[pc.sinkIdx]++
	}

	forkOutPort := make(map[int]int) // srcIdx -> next free fork output port
	forkID := make(map[int]string)   // srcIdx -> synthesized FORK vertex id
	joinInPort := make(map[int]int)  // sinkIdx -> next free join input port
	joinID := make(map[int]string)   // sinkIdx -> synthesized JOIN vertex id

	for _, pc := range pieces {
		srcVertex, srcPort := source[pc.srcIdx].srVertex, source[pc.srcIdx].port
		if srcPieceCount[pc.srcIdx] > 1 {
			fid, ok := forkID[pc.srcIdx]
			if !ok {
				fid = fmt.Sprintf("%s.fork.%d", idPrefix, pc.srcIdx)
				forkID[pc.srcIdx] = fid
				fork := pisdf.NewVertex(fid, fid, pisdf.Fork, []expr.Expression{constRate(source[pc.srcIdx].rate)}, nil)
				if err := sr.AddVertex(fork); err != nil {
					return err
				}
				edge := &pisdf.Edge{ID: fid + ".in", From: srcVertex, FromPort: srcPort, To: fid, ToPort: 0,
					FromRate: constRate(source[pc.srcIdx].rate), ToRate: constRate(source[pc.srcIdx].rate)}
				if err := sr.AddEdge(edge); err != nil {
					return err
				}
			}
			fork, err := sr.Vertex(fid)
			if err != nil {
				return err
			}
			port := forkOutPort[pc.srcIdx]
			forkOutPort[pc.srcIdx] = port + 1
			fork.AddOutputPort(constRate(pc.size))
			srcVertex, srcPort = fid, port
		}

		sinkVertex, sinkPort := sink[pc.sinkIdx].srVertex, sink[pc.sinkIdx].port
		if sinkPieceCount[pc.sinkIdx] > 1 {
			jid, ok := joinID[pc.sinkIdx]
			if !ok {
				jid = fmt.Sprintf("%s.join.%d", idPrefix, pc.sinkIdx)
				joinID[pc.sinkIdx] = jid
				join := pisdf.NewVertex(jid, jid, pisdf.Join, nil, []expr.Expression{constRate(sink[pc.sinkIdx].rate)})
				if err := sr.AddVertex(join); err != nil {
					return err
				}
				edge := &pisdf.Edge{ID: jid + ".out", From: jid, FromPort: 0, To: sinkVertex, ToPort: sinkPort,
					FromRate: constRate(sink[pc.sinkIdx].rate), ToRate: constRate(sink[pc.sinkIdx].rate)}
				if err := sr.AddEdge(edge); err != nil {
					return err
				}
			}
			join, err := sr.Vertex(jid)
			if err != nil {
				return err
			}
			port := joinInPort[pc.sinkIdx]
			joinInPort[pc.sinkIdx] = port + 1
			join.AddInputPort(constRate(pc.size))
			sinkVertex, sinkPort = jid, port
		}

		edge := &pisdf.Edge{
			ID:       fmt.Sprintf("%s.%d.%d", idPrefix, pc.srcIdx, pc.sinkIdx),
			From:     srcVertex, FromPort: srcPort, FromRate: constRate(pc.size),
			To: sinkVertex, ToPort: sinkPort, ToRate: constRate(pc.size),
		}
		if err := sr.AddEdge(edge); err != nil {
			return err
		}
	}
	return nil
}
