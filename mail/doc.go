// Package mail provides the SMTP implementation of the engine's MailSender
// interface and the HTML bodies for every message the engine sends.
//
// # Architecture boundaries
//
// This package renders and delivers; it makes no authentication decisions
// and stores nothing. Challenge secrets appear in rendered bodies only.
package mail
