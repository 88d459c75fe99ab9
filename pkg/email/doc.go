// Package email sends transactional e-mail through Postmark, or records it
// locally during development.
//
// Pick a sender from configuration with New: a Postmark server token selects
// Postmark; otherwise messages are written to EMAIL_DEV_DIR when set, and
// only logged when it is not.
//
//	sender, err := email.New(cfg, log)
//	if err != nil { ... }
//	err = sender.Send(ctx, email.Message{
//	    To:       "user@example.com",
//	    Subject:  "⚠️ 1 NDA expires in 30 days",
//	    TextBody: body,
//	    Tag:      "nda-expiry",
//	})
//
// HTML bodies are usually rendered from templ components with
// templates.Render.
package email
