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

package dispatcher

import (
	"context"
	"fmt"

	"github.com/pipelinecore/settings-engine/pkg/coerce"
	"github.com/pipelinecore/settings-engine/pkg/model"
	"github.com/pipelinecore/settings-engine/pkg/tool/chat"
	"github.com/pipelinecore/settings-engine/pkg/tool/mail"
)

// ReportOp emits a status report through the sink named by `report`
// (`email` or `mattermost`). The SMTP connection details come from
// built-ins (smtp_host, smtp_port, smtp_username, smtp_password,
// smtp_from); the mattermost webhook url and text come from the
// action-link's own keys.
type ReportOp struct{}

func init() { register(ReportOp{}) }

func (ReportOp) Discriminator() string { return "report" }

func (ReportOp) Validate(link *model.ActionLink) error {
	sink, ok := coerce.ToString(link.Raw["report"])
	if !ok {
		return fmt.Errorf("report must be one of email, mattermost")
	}
	switch sink {
	case "email":
		if _, ok := coerce.ToString(link.Raw["to"]); !ok {
			return fmt.Errorf("report: email requires a to address")
		}
	case "mattermost":
		if _, ok := coerce.ToString(link.Raw["url"]); !ok {
			return fmt.Errorf("report: mattermost requires a url")
		}
		if _, ok := coerce.ToString(link.Raw["text"]); !ok {
			return fmt.Errorf("report: mattermost requires text")
		}
	default:
		return fmt.Errorf("report must be one of email, mattermost, got %q", sink)
	}
	return nil
}

func (ReportOp) Run(ctx context.Context, rc *RunContext, link *model.ActionLink) (bool, string, error) {
	sink, _ := coerce.ToString(link.Raw["report"])

	if rc.DryRun {
		return true, fmt.Sprintf("would send %s report", sink), nil
	}

	switch sink {
	case "email":
		to, _ := coerce.ToString(link.Raw["to"])
		subject, _ := coerce.ToString(link.Raw["subject"])
		body, _ := coerce.ToString(link.Raw["body"])
		replyTo, _ := coerce.ToString(link.Raw["reply_to"])

		smtpHost, _ := rc.Env.GetBuiltin("smtp_host")
		smtpPort, _ := rc.Env.GetBuiltin("smtp_port")
		smtpUser, _ := rc.Env.GetBuiltin("smtp_username")
		smtpPass, _ := rc.Env.GetBuiltin("smtp_password")
		from, _ := rc.Env.GetBuiltin("smtp_from")

		port, _ := smtpPort.(int)
		params := mail.Params{
			From:     stringOrEmpty(from),
			To:       to,
			ReplyTo:  replyTo,
			Subject:  subject,
			Body:     body,
			Host:     stringOrEmpty(smtpHost),
			Port:     port,
			Username: stringOrEmpty(smtpUser),
			Password: stringOrEmpty(smtpPass),
		}
		if err := mail.Send(params); err != nil {
			return false, "", fmt.Errorf("send email report: %w", err)
		}
		return true, fmt.Sprintf("sent email report to %s", to), nil

	case "mattermost":
		url, _ := coerce.ToString(link.Raw["url"])
		text, _ := coerce.ToString(link.Raw["text"])
		if err := chat.PostWebhook(url, text); err != nil {
			return false, "", fmt.Errorf("send mattermost report: %w", err)
		}
		return true, "sent mattermost report", nil
	}

	return false, "", fmt.Errorf("unhandled report sink %q", sink)
}

func stringOrEmpty(v interface{}) string {
	s, _ := v.(string)
	return s
}
