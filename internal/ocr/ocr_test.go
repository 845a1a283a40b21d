package ocr

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records the last image set and echoes it from Text, with a small
// delay between the two calls so interleaved callers would cross-read.
type fakeEngine struct {
	current string
	closed  bool
}

func (f *fakeEngine) SetImageFromBytes(data []byte) error {
	f.current = string(data)
	return nil
}

func (f *fakeEngine) Text() (string, error) {
	time.Sleep(time.Millisecond)
	return f.current, nil
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func TestRecognizeImage_SerializesConcurrentCallers(t *testing.T) {
	c := &Client{client: &fakeEngine{}}

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		payload := fmt.Sprintf("page-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.RecognizeImage([]byte(payload))
			if err != nil {
				errs <- err
				return
			}
			if got != payload {
				errs <- fmt.Errorf("got %q for image %q: calls interleaved", got, payload)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRecognizeImage_TrimsWhitespace(t *testing.T) {
	c := &Client{client: &fakeEngine{}}

	got, err := c.RecognizeImage([]byte("  201  Unclassified Excavation  \n"))
	require.NoError(t, err)
	assert.Equal(t, "201  Unclassified Excavation", got)
}

func TestClose_NilEngine(t *testing.T) {
	var c Client
	assert.NoError(t, c.Close())
}

func TestClose_ReleasesEngine(t *testing.T) {
	eng := &fakeEngine{}
	c := &Client{client: eng}

	require.NoError(t, c.Close())
	assert.True(t, eng.closed)
}
