package memo

import (
	"bytes"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

const snapshotMagic = "memo-snapshot/1"

type snapshotEntry struct {
	Key   []byte `msgpack:"k" cbor:"k"`
	Value []byte `msgpack:"v" cbor:"v"`
}

type snapshotBody struct {
	Entries []snapshotEntry `msgpack:"entries" cbor:"entries"`
}

// encodeSnapshot writes the header line followed by the codec body. Entries
// are sorted by key so equal stores produce identical bytes.
func encodeSnapshot(codec Codec, entries []snapshotEntry) ([]byte, error) {
	slices.SortFunc(entries, func(a, b snapshotEntry) int {
		return bytes.Compare(a.Key, b.Key)
	})
	body, err := codec.Marshal(snapshotBody{Entries: entries})
	if err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	header := snapshotMagic + " " + codec.Name() + "\n"
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	return append(out, body...), nil
}

func decodeSnapshot(codec Codec, data []byte) ([]snapshotEntry, error) {
	header, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return nil, errors.New("missing snapshot header")
	}
	magic, name, _ := strings.Cut(string(header), " ")
	if magic != snapshotMagic {
		if len(header) > 32 {
			header = header[:32]
		}
		return nil, errors.Newf("unrecognized snapshot header %q", header)
	}
	if name != codec.Name() {
		return nil, errors.Newf("snapshot was written with codec %q, cache uses %q", name, codec.Name())
	}
	var b snapshotBody
	if err := codec.Unmarshal(body, &b); err != nil {
		return nil, errors.Wrap(err, "decode snapshot body")
	}
	return b.Entries, nil
}
