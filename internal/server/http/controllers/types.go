package controllers

// Common request/response types for HTTP controllers.

// putReq carries one item to enqueue. Item is a pointer so a missing
// field is distinguishable from a legitimate 0.
type putReq struct {
	Item *int64 `json:"item"`
}

// putResp echoes the queue depth after the put.
type putResp struct {
	Size int `json:"size"`
}

// getReq bounds the long-poll window; 0 means the broker default.
type getReq struct {
	WaitMs int64 `json:"wait_ms"`
}

// getResp carries the dequeued item and the depth after the get.
type getResp struct {
	Item int64 `json:"item"`
	Size int   `json:"size"`
}

// sizeResp reports the current queue depth.
type sizeResp struct {
	Size int `json:"size"`
}

// healthResp reports liveness plus the run id, so clients can detect
// a broker restart.
type healthResp struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}
