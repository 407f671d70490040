// Package webpush sends encrypted Web Push messages without a vendor SDK.
//
// A Sender is built once from a VAPIDKeyPair loaded at startup. Every message
// gets a fresh ephemeral key and salt, is encrypted with the aes128gcm content
// coding, and is signed with a VAPID token scoped to the push service origin.
//
// Generic Event Delivery Using HTTP Push
// https://www.rfc-editor.org/rfc/rfc8030.html
//
// Message Encryption for Web Push
// https://www.rfc-editor.org/rfc/rfc8291.html
//
// Voluntary Application Server Identification (VAPID) for Web Push
// https://www.rfc-editor.org/rfc/rfc8292
//
// Encrypted Content-Encoding for HTTP:
// https://www.rfc-editor.org/rfc/rfc8188
package webpush
