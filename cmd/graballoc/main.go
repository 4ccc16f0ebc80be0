// Command graballoc is a small operator-facing harness over the grabcache
// allocator: not the embedding server this package was built for, just a
// smoke-test binary that drives a synthetic workload and reports Stats.
package main

func main() {
	execute()
}
