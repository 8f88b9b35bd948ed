// Package mmap provides read-only memory-mapped file access.
//
// The local artifact store maps artifact files instead of reading them, so
// large vector matrices are paged in by the kernel on first touch.
//
//	f, err := mmap.Open("item_vecs.npy")
//	if err != nil { ... }
//	defer f.Close()
//	data := f.Bytes()
//
// Unix uses mmap(2); Windows uses CreateFileMapping/MapViewOfFile.
package mmap
