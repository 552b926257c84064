package uplink

import "errors"

// ErrUnreachable is the default error returned by a failing FakeClient.
var ErrUnreachable = errors.New("uplink unreachable")

// FakeClient is a test double that records uploads and returns scripted replies.
type FakeClient struct {
	// Replies are consumed one per call; the last one repeats.
	Replies []Reply
	// Fail makes every call return Err (or ErrUnreachable).
	Fail bool
	Err  error

	Uploads []Upload
	index   int
}

// Exchange records u and returns the next scripted reply.
func (f *FakeClient) Exchange(u Upload) (Reply, error) {
	f.Uploads = append(f.Uploads, u)
	if f.Fail {
		if f.Err != nil {
			return Reply{}, f.Err
		}
		return Reply{}, ErrUnreachable
	}
	if len(f.Replies) == 0 {
		return Reply{}, nil
	}
	r := f.Replies[f.index]
	if f.index < len(f.Replies)-1 {
		f.index++
	}
	return r, nil
}

// Last returns the most recent upload.
func (f *FakeClient) Last() (Upload, bool) {
	if len(f.Uploads) == 0 {
		return Upload{}, false
	}
	return f.Uploads[len(f.Uploads)-1], true
}
