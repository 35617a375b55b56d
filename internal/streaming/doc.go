/*
Package streaming provides resource-safe byte streaming for HTTP responses.

The central type is BoundedReadCloser, which wraps an open byte source with a
remaining-length counter. It enforces two invariants that matter when the
negotiated response window and the underlying file are not the same thing:

  - the consumer never receives more bytes than the window promised, and
  - the underlying source is released exactly once, whether the consumer
    drains the window, abandons the stream, or hits a read error.

A typical partial-content response seeks to the window start and wraps the
file:

	file, _ := os.Open(path)
	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		file.Close()
		return err
	}
	body := streaming.NewBounded(file, br.Length())
	defer body.Close()
	io.Copy(w, body)

If the source runs dry before the promised window is delivered, Read reports
io.ErrUnexpectedEOF instead of a quiet short body, so the connection aborts
rather than truncates.
*/
package streaming


