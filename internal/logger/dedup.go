package logger

import (
	"bytes"
	"encoding/json"
)

// dictEntry is one emitted dictionary row: a small integer id and the
// full context payload it stands for.
type dictEntry struct {
	Ref     uint32          `json:"ref"`
	Context json.RawMessage `json:"context"`
}

type dictSlot struct {
	ref     uint32
	payload []byte
	lastRef uint64
}

// dedupDict is the rolling dictionary mapping content-hash(context) to
// a small integer id. Ids are stable across batches; each batch
// re-emits the entries it references so batches stay self-contained.
// Entries expire once they have gone one full flush window without a
// reference. Hash collisions are broken by comparing the stored
// payload. The dictionary is owned solely by its batcher goroutine.
type dedupDict struct {
	byHash  map[uint64][]*dictSlot
	nextRef uint32
}

func newDedupDict() *dedupDict {
	return &dedupDict{byHash: make(map[uint64][]*dictSlot)}
}

// assign returns the stable ref for the payload with the given content
// hash, creating one when unseen, and marks it referenced in flushSeq.
func (d *dedupDict) assign(hash uint64, payload []byte, flushSeq uint64) uint32 {
	for _, slot := range d.byHash[hash] {
		if bytes.Equal(slot.payload, payload) {
			slot.lastRef = flushSeq
			return slot.ref
		}
	}
	d.nextRef++
	stored := make([]byte, len(payload))
	copy(stored, payload)
	slot := &dictSlot{ref: d.nextRef, payload: stored, lastRef: flushSeq}
	d.byHash[hash] = append(d.byHash[hash], slot)
	return slot.ref
}

// entriesFor returns the dictionary rows for the refs referenced in the
// current batch, in ascending ref order as assigned.
func (d *dedupDict) entriesFor(refs map[uint32]bool) []dictEntry {
	if len(refs) == 0 {
		return nil
	}
	entries := make([]dictEntry, 0, len(refs))
	for _, slots := range d.byHash {
		for _, slot := range slots {
			if refs[slot.ref] {
				entries = append(entries, dictEntry{Ref: slot.ref, Context: slot.payload})
			}
		}
	}
	sortEntries(entries)
	return entries
}

// expire drops entries that were not referenced in the flush window
// just completed. Called after each flush with the just-completed
// sequence number.
func (d *dedupDict) expire(flushSeq uint64) {
	if flushSeq == 0 {
		return
	}
	for hash, slots := range d.byHash {
		kept := slots[:0]
		for _, slot := range slots {
			if slot.lastRef >= flushSeq {
				kept = append(kept, slot)
			}
		}
		if len(kept) == 0 {
			delete(d.byHash, hash)
		} else {
			d.byHash[hash] = kept
		}
	}
}

func sortEntries(entries []dictEntry) {
	// Insertion sort; dictionaries per batch are small.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Ref < entries[j-1].Ref; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
