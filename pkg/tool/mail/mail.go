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

// Package mail wraps gopkg.in/gomail.v2 for the `report: email` sink,
// adapted from the teacher's pkg/tool/mail.SendEmail: the SMTP host
// config now comes from the run's smtp_* built-ins (read by the
// dispatcher's report operation) instead of a stored systemconfig
// document, and there is no HTML template
// rendering step since spec.md's report body is already a plain
// templated string.
package mail

import (
	"gopkg.in/gomail.v2"
)

// Params is the SMTP configuration plus message content for one send.
type Params struct {
	From, To, ReplyTo, Subject, Body string
	Host                             string
	Port                             int
	Username, Password               string
}

// Send dials the configured SMTP host and delivers the message.
func Send(p Params) error {
	m := gomail.NewMessage()
	m.SetHeader("From", p.From)
	m.SetHeader("To", p.To)
	if p.ReplyTo != "" {
		m.SetHeader("Reply-To", p.ReplyTo)
	}
	m.SetHeader("Subject", p.Subject)
	m.SetBody("text/plain", p.Body)

	d := gomail.NewDialer(p.Host, p.Port, p.Username, p.Password)
	return d.DialAndSend(m)
}
