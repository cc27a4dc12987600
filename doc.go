// Package assetblob loads assets over HTTP into in-memory objects and hands
// out short-lived local references to them.
//
// A reference has the shape "blob:<origin>/<uuid>". It resolves to the exact
// bytes and content type that were fetched, through the [objects.Registry]
// that issued it, until it is released.
//
// # Quick Start
//
// Load the default asset and resolve the reference:
//
//	l, err := assetblob.New(assetblob.WithBaseURL("http://localhost:8080"))
//	if err != nil {
//	    return err
//	}
//	ref, err := l.LoadDefault(ctx) // GET /assets/drip.png
//	if err != nil {
//	    return err
//	}
//	defer l.Release(ref)
//
//	obj, err := l.Registry().Resolve(ref)
//
// # Serving references
//
// Share one registry between the loader and a [server.Handler] mounted at the
// registry's origin, and ref.URL() becomes fetchable by anything that
// displays or downloads by URL:
//
//	reg := objects.NewRegistry(objects.WithOrigin("http://localhost:9090"))
//	l, _ := assetblob.New(assetblob.WithRegistry(reg), assetblob.WithBaseURL(assets))
//	go http.ListenAndServe(":9090", server.NewHandler(reg))
//
// # Asset paths
//
// Asset pipelines that select a decoder by file extension can address
// references through [assetpath.SerializeURL] and read them back with
// [Loader.Reader].
//
// # Errors
//
// Loads are all-or-nothing. A failed Load registers nothing and returns an
// error matching [ErrRetrieval] or [ErrBodyConsumption]. Nothing is retried.
package assetblob
