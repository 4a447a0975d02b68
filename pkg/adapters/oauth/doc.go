// Package oauth signs chat users in to Microsoft Graph with the OAuth 2.0
// authorization code flow and keeps their tokens in a ports.TokenStore.
//
// The flow is:
//
//  1. The token prompt asks SignInLink for a URL. A random state is stored
//     with the session key it belongs to.
//  2. The user signs in and the identity provider redirects to the bot's
//     callback, which calls Complete with the state and the code.
//  3. Complete exchanges the code, stores the token and returns the session
//     key plus a six digit magic code. The host injects a tokens/response turn
//     for that key; users on channels without push paste the magic code instead.
package oauth
