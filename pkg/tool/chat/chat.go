/*
Copyright 2021 The KodeRover Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package chat wraps go-resty/resty/v2 for the `report: mattermost`
// sink, grounded on pkg/tool/httpclient's resty.Client usage in the
// teacher, simplified to the one POST-JSON-webhook call this module
// needs.
package chat

import (
	"github.com/go-resty/resty/v2"
)

var client = resty.New()

// PostWebhook sends text to a Mattermost-style incoming webhook URL.
func PostWebhook(url, text string) error {
	res, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": text}).
		Post(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return &WebhookError{Code: res.StatusCode(), Body: res.String()}
	}
	return nil
}

// WebhookError reports a non-2xx response from the webhook endpoint.
type WebhookError struct {
	Code int
	Body string
}

func (e *WebhookError) Error() string {
	return "mattermost webhook returned an error status"
}
