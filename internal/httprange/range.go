package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsatisfiable indicates that a Range header was present but no byte
// window inside the resource could be derived from it. Callers respond with
// 416 and a "bytes */<total>" Content-Range.
var ErrUnsatisfiable = errors.New("requested range not satisfiable")

// ByteRange is a validated byte window within a resource of known total
// length. Start and End are inclusive, as in the Content-Range header.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Length returns the number of bytes in the window.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the window for the Content-Range response header.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// UnsatisfiableContentRange formats the Content-Range header sent with a 416
// response.
func UnsatisfiableContentRange(total int64) string {
	return fmt.Sprintf("bytes */%d", total)
}

// Parse evaluates a Range header value against a resource of total bytes.
//
// A blank header means the whole resource is wanted: Parse returns ok=false
// with a nil error and the caller serves a full 200 response.
//
// Only the first range unit is honored; everything after a comma is ignored.
// Supported forms are "bytes=a-b", "bytes=a-" (to end of file) and
// "bytes=-n" (final n bytes). An end beyond the resource clamps to total-1.
//
// A header that is present but yields no usable window (malformed, start
// beyond the resource, start after end, or a zero-length suffix) returns
// ErrUnsatisfiable.
func Parse(header string, total int64) (ByteRange, bool, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return ByteRange{}, false, nil
	}

	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return ByteRange{}, false, ErrUnsatisfiable
	}

	// Single-range support only: take the first unit, drop the rest.
	if idx := strings.IndexByte(spec, ','); idx >= 0 {
		spec = spec[:idx]
	}
	spec = strings.TrimSpace(spec)

	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return ByteRange{}, false, ErrUnsatisfiable
	}

	startPart := strings.TrimSpace(spec[:dash])
	endPart := strings.TrimSpace(spec[dash+1:])

	if startPart == "" {
		// Suffix form: last n bytes.
		n, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false, ErrUnsatisfiable
		}
		if total <= 0 {
			return ByteRange{}, false, ErrUnsatisfiable
		}
		start := total - n
		if start < 0 {
			start = 0
		}
		return ByteRange{Start: start, End: total - 1, Total: total}, true, nil
	}

	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, false, ErrUnsatisfiable
	}
	if start >= total {
		return ByteRange{}, false, ErrUnsatisfiable
	}

	end := total - 1
	if endPart != "" {
		end, err = strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return ByteRange{}, false, ErrUnsatisfiable
		}
		if end >= total {
			end = total - 1
		}
	}

	if start > end {
		return ByteRange{}, false, ErrUnsatisfiable
	}

	return ByteRange{Start: start, End: end, Total: total}, true, nil
}


