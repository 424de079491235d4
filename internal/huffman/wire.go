package huffman

import "errors"

// ErrInvalidWireFormat is returned for malformed serialized tables: a
// repeat meta-symbol with no previous code, a run that overflows the
// declared symbol count, or a code-length code count outside [1,21]
// (spec §4.2).
var ErrInvalidWireFormat = errors.New("huffman: invalid serialized table")

// codeLengthOrder is the fixed re-ordering in which 3-bit code-length code
// sizes are transmitted (spec §4.2).
var codeLengthOrder = [21]int{
	17, 18, 19, 20, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15, 16,
}

const (
	symSmallZeroRun = 17 // +3, 3 extra bits
	symBigZeroRun   = 18 // +11, 7 extra bits
	symSmallRepeat  = 19 // +3, 2 extra bits
	symBigRepeat    = 20 // +7, 7 extra bits
	numMetaSymbols  = 21
)

// Serialize writes lengths (the canonical code length per main-alphabet
// symbol, 0 = unused) to w using the wire format from spec §4.2: a 14-bit
// symbol count, a code-length Huffman table, then the main lengths
// RLE-coded through it.
func Serialize(w bitWriter, lengths []int) error {
	n := len(lengths)
	if n == 0 || n >= (1<<14) {
		return ErrInvalidWireFormat
	}
	w.PutBits(uint32(n), 14)
	if allZero(lengths) {
		return ErrInvalidWireFormat
	}

	runs := rleEncode(lengths)
	clLengths, err := codeLengthHuffmanLengths(runs)
	if err != nil {
		return err
	}

	// Find highest-index nonzero entry in the fixed order to know how many
	// 3-bit sizes to transmit.
	count := numMetaSymbols
	for count > 0 && clLengths[codeLengthOrder[count-1]] == 0 {
		count--
	}
	if count == 0 {
		count = 1
	}
	w.PutBits(uint32(count), 5)
	for i := 0; i < count; i++ {
		w.PutBits(uint32(clLengths[codeLengthOrder[i]]), 3)
	}

	clTable, err := Build(clLengths[:])
	if err != nil {
		return err
	}
	for _, ru := range runs {
		clTable.Encode(w, ru.sym)
		switch ru.sym {
		case symSmallZeroRun:
			w.PutBits(uint32(ru.count-3), 3)
		case symBigZeroRun:
			w.PutBits(uint32(ru.count-11), 7)
		case symSmallRepeat:
			w.PutBits(uint32(ru.count-3), 2)
		case symBigRepeat:
			w.PutBits(uint32(ru.count-7), 7)
		}
	}
	return nil
}

// Deserialize reads a serialized table back into per-symbol code lengths.
// It returns (nil, nil) when the stream declares zero symbols (spec §4.2:
// "if zero, stop").
func Deserialize(r bitReader) ([]int, error) {
	n := int(r.GetBits(14))
	if n == 0 {
		return nil, nil
	}
	count := int(r.GetBits(5))
	if count < 1 || count > numMetaSymbols {
		return nil, ErrInvalidWireFormat
	}
	var clLengths [numMetaSymbols]int
	for i := 0; i < count; i++ {
		clLengths[codeLengthOrder[i]] = int(r.GetBits(3))
	}
	clTable, err := Build(clLengths[:])
	if err != nil {
		return nil, ErrInvalidWireFormat
	}

	lengths := make([]int, n)
	i := 0
	prev := 8 // default previous length if a repeat occurs before any raw code (matches spec: no previous => error, but some encoders seed 8; guard below treats i==0 repeat as an error per spec)
	havePrev := false
	for i < n {
		sym, err := clTable.Decode(r)
		if err != nil {
			return nil, ErrInvalidWireFormat
		}
		switch {
		case sym <= 16:
			lengths[i] = int(sym)
			prev = int(sym)
			havePrev = true
			i++
		case sym == symSmallZeroRun:
			run := int(r.GetBits(3)) + 3
			if i+run > n {
				return nil, ErrInvalidWireFormat
			}
			for k := 0; k < run; k++ {
				lengths[i+k] = 0
			}
			i += run
		case sym == symBigZeroRun:
			run := int(r.GetBits(7)) + 11
			if i+run > n {
				return nil, ErrInvalidWireFormat
			}
			for k := 0; k < run; k++ {
				lengths[i+k] = 0
			}
			i += run
		case sym == symSmallRepeat:
			if !havePrev {
				return nil, ErrInvalidWireFormat
			}
			run := int(r.GetBits(2)) + 3
			if i+run > n {
				return nil, ErrInvalidWireFormat
			}
			for k := 0; k < run; k++ {
				lengths[i+k] = prev
			}
			i += run
		case sym == symBigRepeat:
			if !havePrev {
				return nil, ErrInvalidWireFormat
			}
			run := int(r.GetBits(7)) + 7
			if i+run > n {
				return nil, ErrInvalidWireFormat
			}
			for k := 0; k < run; k++ {
				lengths[i+k] = prev
			}
			i += run
		default:
			return nil, ErrInvalidWireFormat
		}
	}
	return lengths, nil
}

type run struct {
	sym   int
	count int // only meaningful for run-length meta symbols
}

// rleEncode converts raw per-symbol lengths into a sequence of literal and
// run-length meta symbols, greedily preferring the largest applicable run.
func rleEncode(lengths []int) []run {
	var runs []run
	n := len(lengths)
	i := 0
	for i < n {
		if lengths[i] == 0 {
			j := i
			for j < n && lengths[j] == 0 {
				j++
			}
			count := j - i
			for count > 0 {
				switch {
				case count >= 11:
					take := count
					if take > 11+(1<<7)-1 {
						take = 11 + (1 << 7) - 1
					}
					runs = append(runs, run{sym: symBigZeroRun, count: take})
					count -= take
				case count >= 3:
					runs = append(runs, run{sym: symSmallZeroRun, count: count})
					count = 0
				default:
					for k := 0; k < count; k++ {
						runs = append(runs, run{sym: 0})
					}
					count = 0
				}
			}
			i = j
			continue
		}
		// Literal, then look for a run of repeats of the same value.
		val := lengths[i]
		runs = append(runs, run{sym: val})
		i++
		j := i
		for j < n && lengths[j] == val {
			j++
		}
		count := j - i
		for count > 0 {
			switch {
			case count >= 7:
				take := count
				if take > 7+(1<<7)-1 {
					take = 7 + (1 << 7) - 1
				}
				runs = append(runs, run{sym: symBigRepeat, count: take})
				count -= take
			case count >= 3:
				runs = append(runs, run{sym: symSmallRepeat, count: count})
				count = 0
			default:
				for k := 0; k < count; k++ {
					runs = append(runs, run{sym: val})
				}
				count = 0
			}
		}
		i = j
	}
	return runs
}

// codeLengthHuffmanLengths builds a code-length Huffman table (over the
// 21-symbol meta-alphabet) from the frequency of symbols that rleEncode
// produced, limited to 7 bits so each length fits its 3-bit wire field.
func codeLengthHuffmanLengths(runs []run) ([numMetaSymbols]int, error) {
	var freq [numMetaSymbols]int
	for _, ru := range runs {
		freq[ru.sym]++
	}
	lengths, err := lengthLimitedLengths(freq[:], 7)
	if err != nil {
		return [numMetaSymbols]int{}, err
	}
	var out [numMetaSymbols]int
	copy(out[:], lengths)
	return out, nil
}

func allZero(v []int) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
