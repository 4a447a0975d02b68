/*
Package prompt implements the single-turn input primitives awaited by steps.

Every primitive renders its question on Begin and parses the following turn on
Continue. A rejected reply re-renders the retry text, or the original question
when no retry text is configured. There is no retry cap.

  - Text: any non-empty string, optionally validated.
  - Choice: one of a fixed set of labels, matched case-insensitively or by 1-based number.
  - Confirm: yes/no utterances.
  - DateTime: natural-language date and time, resolved by a ports.Recognizer.
  - OAuth: an access token, obtained silently or through a sign-in card.
*/
package prompt
