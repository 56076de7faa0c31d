// Package slack implements the message source and markup resolver over the
// Slack Web API.
//
// # Channel history
//
// The Source lists public, non-archived channels and pages through
// conversations.history newest first, resuming after a stored cursor.
// When the bot is not a member of a channel it joins once and retries;
// a failed join skips the channel with a warning.
//
// # Rate limiting
//
// Every API call waits on a token bucket. Rate-limited responses push the
// next allowed call past their Retry-After, and both rate limits and network
// failures are retried with exponential backoff. Slack API errors such as
// channel_not_found are not retried.
//
// # Text resolution
//
// The Resolver rewrites Slack mrkdwn into plain text: user mentions become
// @name, channel links become #name, links become "label (url)" and
// broadcast mentions become @here, @channel or @everyone. User names are
// cached for the life of the process, including failed lookups.
package slack
