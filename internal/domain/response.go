package domain

import "encoding/json"

// ResultCodeSuccess is the result code the middleware returns for an accepted
// exchange. Any other code means the call completed but was rejected.
const ResultCodeSuccess = "000"

// Response is the decoded envelope of a completed middleware call. Every
// completed call carries a result code; the payload under Data depends on the
// endpoint and is opaque to the relay.
type Response struct {
	ResultCd  string          `json:"resultCd"`
	ResultMsg string          `json:"resultMsg"`
	ResultDt  string          `json:"resultDt"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (r *Response) IsSuccess() bool {
	return r != nil && r.ResultCd == ResultCodeSuccess
}
