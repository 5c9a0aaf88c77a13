package powermeter

import "sync"

func CreateTestReader(powerWatt int64) *TestReader {
	return &TestReader{PowerWatt: powerWatt}
}

// TestReader serves canned samples. With a non-empty Sequence it returns one
// element per call, repeating the last one; otherwise it returns PowerWatt.
type TestReader struct {
	mu        sync.Mutex
	PowerWatt int64
	Sequence  []int64
	Err       error
	Calls     int
}

func (r *TestReader) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls
}

func (r *TestReader) ReadPower() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return 0, r.Err
	}
	if len(r.Sequence) > 0 {
		v := r.Sequence[0]
		if len(r.Sequence) > 1 {
			r.Sequence = r.Sequence[1:]
		}
		return v, nil
	}
	return r.PowerWatt, nil
}
