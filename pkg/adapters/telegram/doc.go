/*
Package telegram connects the flow engine to a Telegram bot through long polling.

Updates are read by a single goroutine and handed to the engine with Enqueue
in arrival order, so each chat is processed strictly in the order its
messages were received while different chats run concurrently.

Render maps engine instructions to Telegram messages: prompts carry a reply
keyboard laid out in rows of two, with navigation buttons on their own row;
welcome and completion messages remove the keyboard.
*/
package telegram
