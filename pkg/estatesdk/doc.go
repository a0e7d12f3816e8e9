/*
Package estatesdk provides a client for the estate listings service.

# SDKClient vs Session

SDKClient covers the public surface: health probes and the listings API.

	client := estatesdk.NewSDKClient("http://localhost:8080")

	health, err := client.GetReadiness(ctx)
	listings, err := client.ListListings(ctx)

Login returns a Session, which keeps the session cookie in its own jar and
drives the owner forms the same way a browser would:

	session, err := client.Login(ctx, "juan@juan.com", "password")

	id, err := session.CreateListing(ctx, form)
	err = session.AttachImage(ctx, id, "front.png", data)
	err = session.DeleteListing(ctx, id)

The HTML routes answer form posts with 303 redirects. Session follows none
of them and instead reads the Location header, so a rejected form surfaces
as an *Error carrying the status code.
*/
package estatesdk
