// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

var (
	Failed = failed(500, "Request failed")

	BadRequest       = failed(4000, "Bad request")
	InvalidSignature = failed(4001, "Invalid webhook signature")
	NotFound         = failed(4004, "Not found")
	Conflict         = failed(4009, "Resource already exists")
	UpgradeRequired  = failed(4026, "Websocket upgrade required")

	InternalError = failed(5000, "Internal error, please contact the administrator")
	AggregateFail = failed(5001, "Failed to compute metrics")
)

var (
	Success = success(200, "Request Success")
)

func failed(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}
