// Package ortengine implements manager.Engine on top of ONNX Runtime through
// github.com/yalue/onnxruntime_go.
//
// Environment mapping:
//
//   - BinarySource / Binary: locate the ONNX Runtime shared library. Installed
//     bytes win; otherwise an http(s) source is downloaded into the cache dir
//     once, and a local source is used as a directory.
//   - NumThreads: intra-op thread count for each new session (0 = runtime default).
//
// ONNX Runtime loads its shared library once per process, so the first
// session decides which library is used; later changes to the binary source
// are logged and ignored until Shutdown.
package ortengine
