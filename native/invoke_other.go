//go:build !(linux || darwin)

package native

const GlobalHandle Handle = 0

type sysInvoker struct{}

func (sysInvoker) Invoke(fn Addr, args ...uintptr) uintptr {
	panic(ErrUnsupported)
}

func SystemInvoker() Invoker {
	return sysInvoker{}
}

func Bootstrap() (Addr, error) {
	return 0, ErrUnsupported
}
